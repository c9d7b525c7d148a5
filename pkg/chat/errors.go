package chat

// UnknownResponseError is returned when a commit references a response id
// that was never staged, was already committed, or has expired.
type UnknownResponseError struct {
	ID string
}

func (e UnknownResponseError) Error() string {
	if e.ID == "" {
		return "unknown response id"
	}

	return "unknown response id: " + e.ID
}
