package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"promptgram/internal/model"
	"promptgram/internal/queue"
)

// Function-field mocks: each test assigns only the behaviors it needs, and
// the zero value of every method is a sane default.

type mockUserRepository struct {
	createFn                func(ctx context.Context, user *model.User) error
	getByIDFn               func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn            func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn         func(ctx context.Context, email string) (bool, error)
	updatePasswordFn        func(ctx context.Context, userID int64, hashed string) error
	deleteFn                func(ctx context.Context, userID int64) error
	getByIDCalls            int
	incrementFollowerCalls  int
	incrementFollowingCalls int
	deleteCalls             int
	createCalls             []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	m.getByIDCalls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	m.incrementFollowerCalls++
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	m.incrementFollowingCalls++
	return nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int64, hashed string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, hashed)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID int64) error {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

type mockFollowRepository struct {
	createFn func(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error)
	deleteFn func(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error
	existsFn func(ctx context.Context, followerID, followingID int64) (bool, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, followerID, followingID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followingID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return nil, nil
}

type mockImageRepository struct {
	createFn              func(ctx context.Context, image *model.Image) error
	getByIDFn             func(ctx context.Context, imageID int64) (*model.Image, error)
	existsFn              func(ctx context.Context, imageID int64) (bool, error)
	getAllPublicFn        func(ctx context.Context) ([]model.GalleryImage, error)
	getByUserFn           func(ctx context.Context, userID int64) ([]model.ImageSummary, error)
	incrementRemixFn      func(ctx context.Context, imageID int64) error
	checkLikesFn          func(ctx context.Context, userID int64, imageIDs []int64) (map[int64]bool, error)
	insertLikeFn          func(ctx context.Context, userID, imageID int64) (bool, error)
	deleteLikeFn          func(ctx context.Context, userID, imageID int64) (bool, error)
	updateLikeCountFn     func(ctx context.Context, imageID int64, delta int) (int, error)
	getAllPublicCalls     int
	incrementRemixCalls   int
	updateLikeCountCalls  int
	createCalls           []*model.Image
}

func (m *mockImageRepository) Create(ctx context.Context, image *model.Image) error {
	m.createCalls = append(m.createCalls, image)
	if m.createFn != nil {
		return m.createFn(ctx, image)
	}
	image.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockImageRepository) GetByID(ctx context.Context, imageID int64) (*model.Image, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, imageID)
	}
	return nil, model.ErrImageNotFound
}

func (m *mockImageRepository) Exists(ctx context.Context, imageID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, imageID)
	}
	return false, nil
}

func (m *mockImageRepository) GetAllPublic(ctx context.Context) ([]model.GalleryImage, error) {
	m.getAllPublicCalls++
	if m.getAllPublicFn != nil {
		return m.getAllPublicFn(ctx)
	}
	return nil, nil
}

func (m *mockImageRepository) GetByUser(ctx context.Context, userID int64) ([]model.ImageSummary, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockImageRepository) InsertLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error) {
	if m.insertLikeFn != nil {
		return m.insertLikeFn(ctx, userID, imageID)
	}
	return true, nil
}

func (m *mockImageRepository) DeleteLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error) {
	if m.deleteLikeFn != nil {
		return m.deleteLikeFn(ctx, userID, imageID)
	}
	return true, nil
}

func (m *mockImageRepository) UpdateLikeCount(ctx context.Context, tx *sqlx.Tx, imageID int64, delta int) (int, error) {
	m.updateLikeCountCalls++
	if m.updateLikeCountFn != nil {
		return m.updateLikeCountFn(ctx, imageID, delta)
	}
	return 0, nil
}

func (m *mockImageRepository) IncrementRemixCount(ctx context.Context, imageID int64) error {
	m.incrementRemixCalls++
	if m.incrementRemixFn != nil {
		return m.incrementRemixFn(ctx, imageID)
	}
	return nil
}

func (m *mockImageRepository) CheckLikes(ctx context.Context, userID int64, imageIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, imageIDs)
	}
	return map[int64]bool{}, nil
}

type mockRemixRepository struct {
	createFn    func(ctx context.Context, remix *model.RemixImage) error
	createCalls []*model.RemixImage
}

func (m *mockRemixRepository) Create(ctx context.Context, remix *model.RemixImage) error {
	m.createCalls = append(m.createCalls, remix)
	if m.createFn != nil {
		return m.createFn(ctx, remix)
	}
	remix.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockRemixRepository) GetByUser(ctx context.Context, userID int64) ([]model.RemixImage, error) {
	return nil, nil
}

type mockPublisher struct {
	published []queue.DriftEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.DriftEvent) (string, error) {
	m.published = append(m.published, event)
	return "1-0", nil
}

// fakeCache is an in-memory cache.Store that round-trips values through JSON
// the way the real store does, so stale-pointer bugs show up in tests.
type fakeCache struct {
	data    map[string][]byte
	counts  map[string]int64
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data:   make(map[string][]byte),
		counts: make(map[string]int64),
	}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := f.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.data[key] = raw
}

func (f *fakeCache) Delete(ctx context.Context, key string) {
	delete(f.data, key)
	f.deleted = append(f.deleted, key)
}

func (f *fakeCache) DeleteMany(ctx context.Context, keys ...string) {
	for _, key := range keys {
		f.Delete(ctx, key)
	}
}

func (f *fakeCache) Incr(ctx context.Context, key string, ttl time.Duration) int64 {
	f.counts[key]++
	return f.counts[key]
}

// stubDriver backs a *sqlx.DB whose transactions only record whether they
// were committed or rolled back. Repositories are mocked, so no statement
// ever executes; this lets the transactional flow run without a database.
type stubDriver struct {
	commits   int
	rollbacks int
}

func (d *stubDriver) Open(name string) (driver.Conn, error) {
	return &stubConn{d: d}, nil
}

type stubConnector struct {
	d *stubDriver
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return &stubConn{d: c.d}, nil
}

func (c stubConnector) Driver() driver.Driver {
	return c.d
}

type stubConn struct {
	d *stubDriver
}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}

func (c *stubConn) Close() error {
	return nil
}

func (c *stubConn) Begin() (driver.Tx, error) {
	return stubTx{d: c.d}, nil
}

type stubTx struct {
	d *stubDriver
}

func (t stubTx) Commit() error {
	t.d.commits++
	return nil
}

func (t stubTx) Rollback() error {
	t.d.rollbacks++
	return nil
}

func newStubDB() (*sqlx.DB, *stubDriver) {
	d := &stubDriver{}
	return sqlx.NewDb(sql.OpenDB(stubConnector{d: d}), "postgres"), d
}
