package useCases

import (
	"context"
	"net/http"

	"tokenAggApp/internal/domain/model"
)

// AggregatorService defines the query and refresh surface consumed by the
// route layer and the scheduler.
type AggregatorService interface {
	GetTokens(ctx context.Context, filter model.TokenFilter, sort model.SortSpec, page model.PageRequest) (*model.PageResult, error)
	GetByAddress(ctx context.Context, address string) (*model.Token, error)
	SearchTokens(ctx context.Context, query string, limit int) ([]*model.Token, error)
	GetAll(ctx context.Context) []*model.Token
	GetStats(ctx context.Context) model.AggregatorStats
	RefreshAll(ctx context.Context)
}

// EventSink receives domain events from the aggregation engine. Delivery is
// synchronous within the merge call and at-most-once; implementations must
// not block and must not propagate their own failures back into the engine.
type EventSink interface {
	OnPriceUpdate(event model.PriceUpdateEvent)
	OnVolumeSpike(event model.VolumeSpikeEvent)
	OnNewToken(token *model.Token)
}

// Broadcaster defines an interface for pushing updates to WebSocket/API layers.
type Broadcaster interface {
	EventSink
	BroadcastSnapshot(tokens []*model.Token)
	Handler() http.HandlerFunc
}
