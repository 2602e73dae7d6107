package hardware

import "context"

// Repository describes hardware persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Hardware, error)
	GetByID(ctx context.Context, hardwareID string) (Hardware, bool, error)
	Upsert(ctx context.Context, item Hardware) error
	Delete(ctx context.Context, hardwareID string) error
}
