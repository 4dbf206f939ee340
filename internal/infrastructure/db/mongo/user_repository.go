package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID                     string    `bson:"_id"`
	Email                  string    `bson:"email"`
	FirstName              string    `bson:"first_name"`
	LastName               string    `bson:"last_name"`
	Role                   string    `bson:"role"`
	Specialization         string    `bson:"specialization,omitempty"`
	PasswordHash           string    `bson:"password_hash"`
	ProfilePictureURL      string    `bson:"profile_picture_url,omitempty"`
	RefreshTokenHash       string    `bson:"refresh_token_hash"`
	RefreshTokenExpiry     time.Time `bson:"refresh_token_expiry"`
	PasswordResetTokenHash string    `bson:"password_reset_token_hash"`
	PasswordResetExpiry    time.Time `bson:"password_reset_expiry"`
	CreatedAt              time.Time `bson:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at"`
}

func toUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:                     u.ID,
		Email:                  u.Email,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		Role:                   string(u.Role),
		Specialization:         u.Specialization,
		PasswordHash:           u.PasswordHash,
		ProfilePictureURL:      u.ProfilePictureURL,
		RefreshTokenHash:       u.RefreshTokenHash,
		RefreshTokenExpiry:     u.RefreshTokenExpiry,
		PasswordResetTokenHash: u.PasswordResetTokenHash,
		PasswordResetExpiry:    u.PasswordResetExpiry,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                     d.ID,
		Email:                  d.Email,
		FirstName:              d.FirstName,
		LastName:               d.LastName,
		Role:                   domain.Role(d.Role),
		Specialization:         d.Specialization,
		PasswordHash:           d.PasswordHash,
		ProfilePictureURL:      d.ProfilePictureURL,
		RefreshTokenHash:       d.RefreshTokenHash,
		RefreshTokenExpiry:     d.RefreshTokenExpiry.UTC(),
		PasswordResetTokenHash: d.PasswordResetTokenHash,
		PasswordResetExpiry:    d.PasswordResetExpiry.UTC(),
		CreatedAt:              d.CreatedAt.UTC(),
		UpdatedAt:              d.UpdatedAt.UTC(),
	}
}

// Create inserts a new user. The unique email index turns duplicates into a conflict.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("a user with email '%s' already exists", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, ref string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapFindErr(err, "user", ref)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.find(ctx, bson.M{"role": string(role)})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := decodeAll(ctx, cur, (*userDocument).toDomain)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Update replaces the profile, password and reset fields. The refresh token
// pair is only written through SetRefreshToken and RotateRefreshToken.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"email":                     u.Email,
		"first_name":                u.FirstName,
		"last_name":                 u.LastName,
		"role":                      string(u.Role),
		"specialization":            u.Specialization,
		"password_hash":             u.PasswordHash,
		"profile_picture_url":       u.ProfilePictureURL,
		"password_reset_token_hash": u.PasswordResetTokenHash,
		"password_reset_expiry":     u.PasswordResetExpiry,
		"updated_at":                u.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("a user with email '%s' already exists", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("user", u.ID)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("user", id)
	}
	return nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"refresh_token_hash":   tokenHash,
		"refresh_token_expiry": expiry,
	}})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("user", id)
	}
	return nil
}

// RotateRefreshToken is a compare-and-swap on the stored digest.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string, expiry time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token_hash": oldHash},
		bson.M{"$set": bson.M{
			"refresh_token_hash":   newHash,
			"refresh_token_expiry": expiry,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// EnsureIndexes creates the unique email index and the role lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
}
