package entities

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PageParams is a limit/offset window over a listing.
type PageParams struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// Normalized fills defaults for zero values and clamps the limit to MaxPageLimit.
func (p PageParams) Normalized() PageParams {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
