// Package repotest provides in-memory repositories with the same semantics as the gorm ones.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
)

var (
	_ repositories.UserRepository   = (*UserRepository)(nil)
	_ repositories.ReviewRepository = (*ReviewRepository)(nil)
)

type Store struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*models.User
	reviews map[uuid.UUID]*models.Review
	order   map[uuid.UUID]int

	// FailFavorites makes AddFavorite and RemoveFavorite fail without touching either side,
	// the way a rolled back transaction would.
	FailFavorites error
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*models.User),
		reviews: make(map[uuid.UUID]*models.Review),
		order:   make(map[uuid.UUID]int),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Reviews() *ReviewRepository {
	return &ReviewRepository{s: s}
}

// Review returns a copy of the stored review, or nil.
func (s *Store) Review(id uuid.UUID) *models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reviews[id]; ok {
		return copyReview(r)
	}
	return nil
}

// User returns a copy of the stored user, or nil.
func (s *Store) User(email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return copyUser(u)
	}
	return nil
}

// PutUser stores a user directly, bypassing registration rules.
func (s *Store) PutUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Favorites == nil {
		u.Favorites = pq.StringArray{}
	}
	s.users[u.Email] = copyUser(&u)
	return copyUser(&u)
}

// PutReview stores a review directly, keeping whatever status it carries.
func (s *Store) PutReview(r models.Review) *models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertReview(&r)
	return copyReview(&r)
}

func (s *Store) insertReview(r *models.Review) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.IsFavoriteBy == nil {
		r.IsFavoriteBy = pq.StringArray{}
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.seq++
	s.order[r.ID] = s.seq
	s.reviews[r.ID] = copyReview(r)
}

func (s *Store) sortedReviews(keep func(*models.Review) bool) []models.Review {
	var out []models.Review
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, *copyReview(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	return out
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Email]; ok {
		return repositories.ErrDuplicate
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Favorites == nil {
		user.Favorites = pq.StringArray{}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.Email] = copyUser(user)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []models.User
	for _, u := range r.s.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.PhotoURL != nil {
		u.PhotoURL = *req.PhotoURL
	}
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (r *UserRepository) SetFavorites(ctx context.Context, email string, favorites []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[email]; ok {
		u.Favorites = append(pq.StringArray{}, favorites...)
	}
	return nil
}

func (r *UserRepository) DeleteWithReviews(ctx context.Context, user *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Email]; !ok {
		return 0, repositories.ErrNotFound
	}

	var deleted int64
	for id, review := range r.s.reviews {
		if review.UserEmail != user.Email {
			continue
		}
		delete(r.s.reviews, id)
		deleted++
		for _, u := range r.s.users {
			u.Favorites = without(u.Favorites, id.String())
		}
	}
	for _, review := range r.s.reviews {
		review.IsFavoriteBy = without(review.IsFavoriteBy, user.Email)
	}
	delete(r.s.users, user.Email)
	return deleted, nil
}

type ReviewRepository struct {
	s *Store
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.insertReview(review)
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyReview(review), nil
}

func (r *ReviewRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return r.s.sortedReviews(func(rv *models.Review) bool { return wanted[rv.ID] }), nil
}

func (r *ReviewRepository) List(ctx context.Context, filter repositories.ReviewFilter) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(filter.FoodNameContains)
	return r.s.sortedReviews(func(rv *models.Review) bool {
		if filter.Status != "" && rv.Status != filter.Status {
			return false
		}
		if filter.UserEmail != "" && rv.UserEmail != filter.UserEmail {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(rv.FoodName), needle) {
			return false
		}
		return true
	}), nil
}

func (r *ReviewRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for column, value := range fields {
		switch column {
		case repositories.ColumnFoodName:
			review.FoodName = value.(string)
		case repositories.ColumnRestaurantName:
			review.RestaurantName = value.(string)
		case repositories.ColumnLocation:
			review.Location = value.(string)
		case repositories.ColumnRating:
			review.Rating = value.(int)
		case repositories.ColumnReviewText:
			review.ReviewText = value.(string)
		case repositories.ColumnFoodImage:
			review.FoodImage = value.(string)
		case repositories.ColumnPhotoURL:
			review.PhotoURL = value.(string)
		case repositories.ColumnPhotoKey:
			review.PhotoKey = value.(string)
		default:
			return fmt.Errorf("repotest: unknown review column %q", column)
		}
	}
	review.UpdatedAt = time.Now()
	return nil
}

func (r *ReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[id]
	if !ok {
		return repositories.ErrNotFound
	}
	review.Status = status
	review.UpdatedAt = time.Now()
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.reviews, id)
	for _, u := range r.s.users {
		u.Favorites = without(u.Favorites, id.String())
	}
	return nil
}

func (r *ReviewRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int64{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for _, review := range r.s.reviews {
		counts[review.Status]++
	}
	return counts, nil
}

func (r *ReviewRepository) SetIsFavoriteBy(ctx context.Context, id uuid.UUID, emails []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if review, ok := r.s.reviews[id]; ok {
		review.IsFavoriteBy = append(pq.StringArray{}, emails...)
	}
	return nil
}

func (r *ReviewRepository) AddFavorite(ctx context.Context, id uuid.UUID, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailFavorites != nil {
		return r.s.FailFavorites
	}
	if review, ok := r.s.reviews[id]; ok && !review.IsFavoritedBy(email) {
		review.IsFavoriteBy = append(review.IsFavoriteBy, email)
	}
	if u, ok := r.s.users[email]; ok && !u.HasFavorite(id.String()) {
		u.Favorites = append(u.Favorites, id.String())
	}
	return nil
}

func (r *ReviewRepository) RemoveFavorite(ctx context.Context, id uuid.UUID, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailFavorites != nil {
		return r.s.FailFavorites
	}
	if review, ok := r.s.reviews[id]; ok {
		review.IsFavoriteBy = without(review.IsFavoriteBy, email)
	}
	if u, ok := r.s.users[email]; ok {
		u.Favorites = without(u.Favorites, id.String())
	}
	return nil
}

func without(set pq.StringArray, value string) pq.StringArray {
	out := pq.StringArray{}
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Favorites = append(pq.StringArray{}, u.Favorites...)
	return &c
}

func copyReview(r *models.Review) *models.Review {
	c := *r
	c.IsFavoriteBy = append(pq.StringArray{}, r.IsFavoriteBy...)
	return &c
}
