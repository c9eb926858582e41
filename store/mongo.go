package store

import (
	"context"
	"time"

	"friendbox/errs"
	"friendbox/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// Mongo stores each user record as one document; every mutation is a single
// update operator on that document.
type Mongo struct {
	users *mongo.Collection
}

type userDoc struct {
	ID               string    `bson:"_id"`
	Username         string    `bson:"username"`
	FullName         string    `bson:"fullName"`
	Avatar           string    `bson:"profilePicture"`
	Password         string    `bson:"password"`
	CreatedAt        time.Time `bson:"createdAt"`
	Friends          []edgeDoc `bson:"friends"`
	SentRequests     []string  `bson:"sentFriendRequests"`
	ReceivedRequests []string  `bson:"receivedFriendRequests"`
}

type edgeDoc struct {
	ID        string       `bson:"_id"`
	Friend    string       `bson:"friend"`
	Messages  []messageDoc `bson:"messages"`
	CreatedAt time.Time    `bson:"createdAt"`
}

type messageDoc struct {
	ID        string    `bson:"id"`
	From      string    `bson:"from"`
	To        string    `bson:"to"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique username index. Idempotent.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create username index")
}

func (s *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	u.Username = NormalizeHandle(u.Username)
	doc := userDoc{
		ID:               u.ID,
		Username:         u.Username,
		FullName:         u.FullName,
		Avatar:           u.Avatar,
		Password:         u.PasswordHash,
		CreatedAt:        u.CreatedAt,
		Friends:          []edgeDoc{},
		SentRequests:     []string{},
		ReceivedRequests: []string{},
	}
	_, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return errors.Wrap(err, "insert user")
}

func (s *Mongo) FetchUser(ctx context.Context, userID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": userID}, userID)
}

func (s *Mongo) FetchUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": NormalizeHandle(handle)}, handle)
}

func (s *Mongo) findOne(ctx context.Context, filter bson.M, ref string) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.TargetNotFound(ref)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return doc.toModel(), nil
}

func (s *Mongo) Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		options.Find().SetProjection(bson.M{"username": 1, "fullName": 1, "profilePicture": 1}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find summaries")
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode summary")
		}
		out[doc.ID] = models.UserSummary{
			ID:       doc.ID,
			Username: doc.Username,
			FullName: doc.FullName,
			Avatar:   doc.Avatar,
		}
	}
	return out, errors.Wrap(cur.Err(), "iterate summaries")
}

func (s *Mongo) AddSentRequest(ctx context.Context, userID, targetID string) (*models.User, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"sentFriendRequests": targetID}}, userID)
}

func (s *Mongo) AddReceivedRequest(ctx context.Context, userID, requesterID string) error {
	return s.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"receivedFriendRequests": requesterID}})
}

func (s *Mongo) RemoveSentRequest(ctx context.Context, userID, targetID string) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"sentFriendRequests": targetID}})
}

func (s *Mongo) RemoveReceivedRequest(ctx context.Context, userID, requesterID string) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"receivedFriendRequests": requesterID}})
}

func (s *Mongo) AddFriendEdge(ctx context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error) {
	if edge.FriendID == userID {
		return nil, errs.InvalidTransition("a user cannot befriend themselves")
	}

	update := bson.M{
		"$push": bson.M{"friends": edgeDoc{
			ID:        edge.ID,
			Friend:    edge.FriendID,
			Messages:  []messageDoc{},
			CreatedAt: edge.CreatedAt,
		}},
	}
	switch clear {
	case models.PendingSent:
		update["$pull"] = bson.M{"sentFriendRequests": edge.FriendID}
	case models.PendingReceived:
		update["$pull"] = bson.M{"receivedFriendRequests": edge.FriendID}
	}

	// The filter refuses a second edge to the same counterpart.
	filter := bson.M{"_id": userID, "friends.friend": bson.M{"$ne": edge.FriendID}}
	updated, err := s.findOneAndUpdate(ctx, filter, update, userID)
	if errs.IsKind(err, errs.KindTargetNotFound) {
		if _, ferr := s.FetchUser(ctx, userID); ferr != nil {
			return nil, ferr
		}
		return nil, errs.InvalidTransition("edge already exists")
	}
	return updated, err
}

func (s *Mongo) AppendMessageToEdge(ctx context.Context, userID, counterpartID string, msg models.Message) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID, "friends.friend": counterpartID},
		bson.M{"$push": bson.M{"friends.$.messages": messageDoc{
			ID:        msg.ID,
			From:      msg.From,
			To:        msg.To,
			Message:   msg.Body,
			Timestamp: msg.Timestamp,
		}}},
	)
	if err != nil {
		return errors.Wrap(err, "push message")
	}
	if res.MatchedCount == 0 {
		return errs.EdgeNotFound(userID, counterpartID)
	}
	return nil
}

func (s *Mongo) updateOne(ctx context.Context, userID string, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if res.MatchedCount == 0 {
		return errs.TargetNotFound(userID)
	}
	return nil
}

func (s *Mongo) findOneAndUpdate(ctx context.Context, filter, update bson.M, ref string) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.TargetNotFound(ref)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return doc.toModel(), nil
}

func (d *userDoc) toModel() *models.User {
	u := &models.User{
		ID:               d.ID,
		Username:         d.Username,
		FullName:         d.FullName,
		Avatar:           d.Avatar,
		PasswordHash:     d.Password,
		CreatedAt:        d.CreatedAt.UTC(),
		SentRequests:     d.SentRequests,
		ReceivedRequests: d.ReceivedRequests,
		Friends:          make([]models.FriendEdge, 0, len(d.Friends)),
	}
	for _, e := range d.Friends {
		edge := models.FriendEdge{ID: e.ID, FriendID: e.Friend, CreatedAt: e.CreatedAt.UTC()}
		for _, m := range e.Messages {
			edge.Messages = append(edge.Messages, models.Message{
				ID:        m.ID,
				From:      m.From,
				To:        m.To,
				Body:      m.Message,
				Timestamp: m.Timestamp.UTC(),
			})
		}
		u.Friends = append(u.Friends, edge)
	}
	return u
}
