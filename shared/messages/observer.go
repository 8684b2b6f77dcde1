package messages

// ObserverMove is sent by a joined client whenever its player moves.
type ObserverMove struct {
	X, Y, Z float64
}
