package domainrank

import (
	"github.com/tombee/soarbridge/internal/operation"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// RankToScore maps a popularity rank to a reputation score. Lower ranks are
// more popular. A nil rank means the vendor had no data for the domain.
//
//	0 < rank <= benign  good
//	rank > threshold    suspicious
//	otherwise           none
func RankToScore(rank *float64, benign, threshold float64) (operation.Score, error) {
	if rank == nil {
		return operation.ScoreNone, nil
	}

	r := *rank
	switch {
	case r < 0:
		return operation.ScoreNone, &soarerrors.ValidationError{
			Field:   "rank",
			Message: "Rank should be positive",
		}
	case r > 0 && r <= benign:
		return operation.ScoreGood, nil
	case r > threshold:
		return operation.ScoreSuspicious, nil
	default:
		return operation.ScoreNone, nil
	}
}
