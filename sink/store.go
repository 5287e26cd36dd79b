package sink

import (
	"context"

	"github.com/Seednode/valentine/db"
)

// Store writes submissions straight into the response database.
type Store struct {
	Responses *db.Responses
}

func (s *Store) Submit(ctx context.Context, sub Submission) error {
	_, err := s.Responses.Insert(ctx, ToResponse(sub))
	if err != nil {
		return &Error{Message: failedMessage, Err: err}
	}

	return nil
}

func ToResponse(s Submission) db.Response {
	return db.Response{
		Person:      s.Person,
		Accepted:    s.Accepted,
		GiftChoice:  s.GiftChoice,
		CustomGift:  s.CustomGift,
		Signature:   s.Signature,
		SubmittedAt: s.SubmittedAt,
	}
}
