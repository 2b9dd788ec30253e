package service

import (
	"context"

	redisx "campusport/internal/redis"
	postgresrepo "campusport/internal/repository/postgres"
	redisrepo "campusport/internal/repository/redis"
	"campusport/internal/service/approval"
	"campusport/internal/service/catalog"
	"campusport/internal/service/directory"
	"campusport/internal/service/identity"
	"campusport/internal/service/query"
	"campusport/internal/service/reservation"
	"campusport/internal/service/watch"
)

type Services struct {
	Catalog     *catalog.Service
	Reservation *reservation.Service
	Approval    *approval.Service
	Query       *query.Service
	Watch       *watch.Service
	Directory   *directory.Service
	Identity    *identity.Service
}

type Config struct {
	Catalog catalog.Config
	Query   query.Config
	Watch   watch.Config
}

func NewServices(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.BookingsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Catalog:     catalog.New(store.Halls(), cache, cfg.Catalog),
		Reservation: reservation.New(store.Bookings(), cache, pubsub, limiter),
		Approval:    approval.New(store.Bookings(), store.Users(), storeTx{store}, cache, pubsub),
		Query:       query.New(store.Bookings(), cache, cfg.Query),
		Watch:       watch.New(store.Bookings(), pubsub, cfg.Watch),
		Directory:   directory.New(store.Faculty()),
		Identity:    identity.New(store.Users()),
	}
}

// storeTx binds the approval workflow's guarded reads and writes to one
// serializable database transaction.
type storeTx struct {
	store *postgresrepo.Store
}

func (t storeTx) InTx(ctx context.Context, fn func(bookings approval.BookingStore, users approval.UserStore) error) error {
	return t.store.RunTx(ctx, nil, func(ctx context.Context, tx postgresrepo.DB) error {
		return fn(t.store.Bookings().With(tx), t.store.Users().With(tx))
	})
}
