package services

import (
	"context"
	"time"

	"github.com/zigopay/cargo-gateway/pkg/pg"
)

type HealthService struct {
	db *pg.DB
}

func NewHealthService(db *pg.DB) *HealthService {
	return &HealthService{db: db}
}

// Get pings both database connections.
func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	read, err := s.db.Read(ctx).DB()
	if err != nil {
		return err
	}
	if err := read.PingContext(ctx); err != nil {
		return err
	}

	write, err := s.db.Write(ctx).DB()
	if err != nil {
		return err
	}
	return write.PingContext(ctx)
}
