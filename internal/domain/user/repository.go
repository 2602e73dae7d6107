package user

import "context"

// Repository describes user persistence needs from use cases. ListByTeam
// returns members in join order.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	ListByTeam(ctx context.Context, teamID string) ([]User, error)
	GetByID(ctx context.Context, userID string) (User, bool, error)
	Upsert(ctx context.Context, item User) error
	Delete(ctx context.Context, userID string) error
}
