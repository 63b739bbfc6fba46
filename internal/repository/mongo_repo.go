package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/floodwatch/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称
const (
	colUsers   = "users"
	colReports = "reports"
)

// MongoStore はMongoDB接続とコレクションを保持する。
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo はMongoDBに接続し、必要なインデックスを作成する。
// uri: "mongodb://localhost:27017" 形式の接続URI
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(pingCtx); err != nil {
		slog.Warn("failed to ensure mongodb indexes", slog.String("error", err.Error()))
	}
	return s, nil
}

// ensureIndexes は検索に使うインデックスを作成する。
// users.emailには一意制約を付けない。同一emailの重複登録を許容する。
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		col  string
		keys bson.D
	}{
		{colUsers, bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: 1}}},
		{colReports, bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}},
	}
	for _, i := range indexes {
		if _, err := s.db.Collection(i.col).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: i.keys}); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

// PingContext はMongoDBの疎通を確認する。
func (s *MongoStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close はMongoDB接続を閉じる。
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Users はユーザーリポジトリを返す。
func (s *MongoStore) Users() *MongoUserRepo {
	return &MongoUserRepo{col: s.db.Collection(colUsers)}
}

// Reports は報告リポジトリを返す。
func (s *MongoStore) Reports() *MongoReportRepo {
	return &MongoReportRepo{col: s.db.Collection(colReports)}
}

// --- ユーザー ---

// userDocument はusersコレクションのドキュメント形式。
type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		Role:      model.Role(d.Role),
		CreatedAt: d.CreatedAt,
	}
}

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	col *mongo.Collection
}

// Create はユーザーを作成する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	doc := userDocument{
		ID:        uuid.New().String(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		Role:      string(user.Role),
		CreatedAt: time.Now(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	var doc userDocument
	err := r.col.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel(), nil
}

// --- 報告 ---

// reportDocument はreportsコレクションのドキュメント形式。
type reportDocument struct {
	ID            string    `bson:"_id"`
	District      string    `bson:"district"`
	Location      string    `bson:"location"`
	Type          string    `bson:"type"`
	Criticality   string    `bson:"criticality"`
	Description   string    `bson:"description"`
	Latitude      *float64  `bson:"latitude"`
	Longitude     *float64  `bson:"longitude"`
	ReporterName  string    `bson:"reporter_name"`
	ContactNumber string    `bson:"contact_number"`
	Status        string    `bson:"status"`
	Timestamp     time.Time `bson:"timestamp"`
}

func newReportDocument(id string, r *model.Report) reportDocument {
	return reportDocument{
		ID:            id,
		District:      r.District,
		Location:      r.Location,
		Type:          r.Type,
		Criticality:   r.Criticality,
		Description:   r.Description,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		ReporterName:  r.ReporterName,
		ContactNumber: r.ContactNumber,
		Status:        string(r.Status),
		Timestamp:     r.Timestamp.Time,
	}
}

func (d reportDocument) toModel() *model.Report {
	return &model.Report{
		ID:            d.ID,
		District:      d.District,
		Location:      d.Location,
		Type:          d.Type,
		Criticality:   d.Criticality,
		Description:   d.Description,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		ReporterName:  d.ReporterName,
		ContactNumber: d.ContactNumber,
		Status:        model.ReportStatus(d.Status),
		Timestamp:     model.LocalDateTime{Time: d.Timestamp},
	}
}

// MongoReportRepo はMongoDBを使用した報告リポジトリ。
type MongoReportRepo struct {
	col *mongo.Collection
}

// Create は報告を作成する。
func (r *MongoReportRepo) Create(ctx context.Context, report *model.Report) error {
	doc := newReportDocument(uuid.New().String(), report)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	report.ID = doc.ID
	return nil
}

// FindByID は指定IDの報告を取得する。見つからない場合はnilを返す。
func (r *MongoReportRepo) FindByID(ctx context.Context, id string) (*model.Report, error) {
	var doc reportDocument
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report by ID: %w", err)
	}
	return doc.toModel(), nil
}

// Update は既存の報告を上書き更新する。
func (r *MongoReportRepo) Update(ctx context.Context, report *model.Report) error {
	doc := newReportDocument(report.ID, report)
	result, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: report.ID}}, doc)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("report %s: %w", report.ID, ErrNotFound)
	}
	return nil
}

// List は全報告をtimestamp昇順で返す。
func (r *MongoReportRepo) List(ctx context.Context) ([]*model.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	results := []*model.Report{}
	for cursor.Next(ctx) {
		var doc reportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		results = append(results, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return results, nil
}

// compile-time interface check
var (
	_ UserRepository   = (*MongoUserRepo)(nil)
	_ ReportRepository = (*MongoReportRepo)(nil)
	_ HealthChecker    = (*MongoStore)(nil)
)
