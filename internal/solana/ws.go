package solana

import "context"

// WSClient defines the Solana WebSocket interface used for
// transaction confirmation.
type WSClient interface {
	// SubscribeSignature subscribes to the confirmation of one
	// signature. The channel delivers at most one notification and is
	// closed afterwards; signatureSubscribe is one-shot on the node
	// side as well.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, error)

	// Close closes the connection.
	Close() error
}

// SignatureNotification reports that a transaction reached confirmed
// commitment. Err is non-nil when the transaction landed but failed.
type SignatureNotification struct {
	Signature string
	Slot      uint64
	Err       interface{}
}
