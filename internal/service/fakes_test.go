package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/testdb"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event events.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(events.Event)})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type fakeImages struct {
	saved   []string
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if string(b) == "not an image" {
		return "", storage.ErrNotImage
	}
	p := "/uploads/products/fixed-" + filename
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakeImages) Delete(_ context.Context, p string) error {
	f.deleted = append(f.deleted, p)
	return nil
}

type fakeIndex struct {
	ids     []uint
	err     error
	put     []uint
	removed []uint
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []uint, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.ids)), f.ids, nil
}

func (f *fakeIndex) Put(_ context.Context, p models.Product) error {
	f.put = append(f.put, p.ID)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uint) error {
	f.removed = append(f.removed, id)
	return nil
}

var errIndexDown = errors.New("index down")

type env struct {
	repo    *repo.GormRepo
	pub     *fakePublisher
	images  *fakeImages
	index   *fakeIndex
	auth    *AuthService
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	r := &repo.GormRepo{DB: testdb.New(t)}
	pub := &fakePublisher{}
	images := &fakeImages{}
	index := &fakeIndex{}
	return &env{
		repo:    r,
		pub:     pub,
		images:  images,
		index:   index,
		auth:    &AuthService{Repo: r, Events: pub},
		catalog: &CatalogService{Repo: r, Images: images, Index: index, Events: pub},
		cart:    &CartService{Repo: r, Events: pub},
		orders:  &OrderService{Repo: r, Events: pub},
	}
}

func (e *env) customer(t *testing.T, email, address, phone string) Actor {
	t.Helper()
	pw, err := hash.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Name: "Customer", Email: email, Password: pw, Role: models.RoleCustomer, Address: address, Phone: phone}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return Actor{UserID: u.ID, Role: models.RoleCustomer}
}

func (e *env) admin(t *testing.T) Actor {
	t.Helper()
	u := &models.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return Actor{UserID: u.ID, Role: models.RoleAdmin}
}

func (e *env) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, e.repo.CreateProduct(context.Background(), p))
	return p
}

func (e *env) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := e.repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func uptr(v uint) *uint     { return &v }
func sptr(v string) *string { return &v }
func bptr(v bool) *bool     { return &v }
