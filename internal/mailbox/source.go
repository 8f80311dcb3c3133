// Package mailbox defines the message-provider collaborator and the
// incremental sync pipeline that feeds the store. Provider implementations
// (OAuth, pagination, push notifications) live outside this repository.
package mailbox

import (
	"context"

	"mailmind/internal/models"
)

// Source is the external message provider. ListNewMessageIDs returns IDs of
// messages that arrived after the given checkpoint (empty checkpoint means a
// full listing) along with a new checkpoint to store once the sync finishes.
type Source interface {
	ListNewMessageIDs(ctx context.Context, sinceHistoryID string) (ids []string, newHistoryID string, err error)
	FetchMessage(ctx context.Context, id string) (*models.Message, error)
}
