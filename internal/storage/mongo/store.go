// Package mongo stores accounts and entries in MongoDB. Multi-document
// changes run inside session transactions, which need a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	accountsCollection = "accounts"
	entriesCollection  = "entries"
)

type MongoLedgerStore struct {
	client   *mongo.Client
	accounts *mongo.Collection
	entries  *mongo.Collection
}

func NewMongoLedgerStore(client *mongo.Client, database string) *MongoLedgerStore {
	db := client.Database(database)
	return &MongoLedgerStore{
		client:   client,
		accounts: db.Collection(accountsCollection),
		entries:  db.Collection(entriesCollection),
	}
}

// Open connects to uri, pings the primary and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*MongoLedgerStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := NewMongoLedgerStore(client, database)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func (s *MongoLedgerStore) EnsureIndexes(ctx context.Context) error {
	accountIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	entryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "account", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "fromAccount", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "toAccount", Value: 1}}},
	}

	if _, err := s.accounts.Indexes().CreateMany(ctx, accountIndexes); err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	if _, err := s.entries.Indexes().CreateMany(ctx, entryIndexes); err != nil {
		return fmt.Errorf("create entry indexes: %w", err)
	}
	return nil
}

func (s *MongoLedgerStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithinTx runs fn in a session transaction. The driver retries fn when the
// server reports a transient write conflict, so fn must not have side
// effects outside tx.
func (s *MongoLedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{store: s})
	})
	return err
}

func (s *MongoLedgerStore) GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	return s.findAccount(ctx, ownerID, accountID)
}

func (s *MongoLedgerStore) ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := s.accounts.Find(ctx, bson.D{{Key: "ownerId", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}
	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(docs))
	for _, d := range docs {
		a, err := d.model()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *MongoLedgerStore) GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	return s.findEntry(ctx, ownerID, entryID)
}

func (s *MongoLedgerStore) ListEntries(ctx context.Context, ownerID string, q models.EntryQuery) ([]models.Entry, int64, error) {
	filter := entryFilter(ownerID, q)

	total, err := s.entries.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	opts := options.Find().
		SetSort(entrySort(q.Sort)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	entries, err := s.findEntries(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *MongoLedgerStore) findAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	var doc accountDoc
	err := s.accounts.FindOne(ctx, byID(ownerID, accountID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, models.NotFoundError("account", accountID)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}
	return doc.model()
}

func (s *MongoLedgerStore) findEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	var doc entryDoc
	err := s.entries.FindOne(ctx, byID(ownerID, entryID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Entry{}, models.NotFoundError("entry", entryID)
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("find entry: %w", err)
	}
	return doc.model()
}

func (s *MongoLedgerStore) findEntries(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]models.Entry, error) {
	cursor, err := s.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	var docs []entryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	entries := make([]models.Entry, 0, len(docs))
	for _, d := range docs {
		e, err := d.model()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// mongoTx operates on the store's collections with the session context it
// is handed, which binds every call to the running transaction.
type mongoTx struct {
	store *MongoLedgerStore
}

func (t *mongoTx) GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	return t.store.findAccount(ctx, ownerID, accountID)
}

func (t *mongoTx) InsertAccount(ctx context.Context, a models.Account) error {
	doc, err := newAccountDoc(a)
	if err != nil {
		return err
	}
	if _, err := t.store.accounts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (t *mongoTx) UpdateAccount(ctx context.Context, a models.Account) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: a.Name},
		{Key: "color", Value: a.Color},
		{Key: "updatedAt", Value: a.UpdatedAt},
	}}}

	res, err := t.store.accounts.UpdateOne(ctx, byID(a.OwnerID, a.ID), update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFoundError("account", a.ID)
	}
	return nil
}

func (t *mongoTx) DeleteAccount(ctx context.Context, ownerID, accountID string) error {
	res, err := t.store.accounts.DeleteOne(ctx, byID(ownerID, accountID))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.NotFoundError("account", accountID)
	}
	return nil
}

func (t *mongoTx) IncrementBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	inc, err := toDecimal128(delta)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "balance", Value: inc}}}}
	res, err := t.store.accounts.UpdateOne(ctx, byID(ownerID, accountID), update)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFoundError("account", accountID)
	}
	return nil
}

func (t *mongoTx) GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	return t.store.findEntry(ctx, ownerID, entryID)
}

func (t *mongoTx) InsertEntry(ctx context.Context, e models.Entry) error {
	doc, err := newEntryDoc(e)
	if err != nil {
		return err
	}
	if _, err := t.store.entries.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (t *mongoTx) ReplaceEntry(ctx context.Context, e models.Entry) error {
	doc, err := newEntryDoc(e)
	if err != nil {
		return err
	}
	res, err := t.store.entries.ReplaceOne(ctx, byID(e.OwnerID, e.ID), doc)
	if err != nil {
		return fmt.Errorf("replace entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFoundError("entry", e.ID)
	}
	return nil
}

func (t *mongoTx) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	res, err := t.store.entries.DeleteOne(ctx, byID(ownerID, entryID))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.NotFoundError("entry", entryID)
	}
	return nil
}

func (t *mongoTx) EntriesReferencing(ctx context.Context, ownerID, accountID string) ([]models.Entry, error) {
	opts := options.Find().SetSort(entrySort(models.SortCreatedDesc))
	return t.store.findEntries(ctx, referencing(ownerID, accountID), opts)
}

func (t *mongoTx) DeleteEntriesReferencing(ctx context.Context, ownerID, accountID string) (int64, error) {
	res, err := t.store.entries.DeleteMany(ctx, referencing(ownerID, accountID))
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return res.DeletedCount, nil
}

var _ interfaces.LedgerStore = (*MongoLedgerStore)(nil)
var _ interfaces.LedgerTx = (*mongoTx)(nil)
