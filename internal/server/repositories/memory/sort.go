package memory

import (
	"slices"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

func sortBySeq(list []models.ChatSession) {
	slices.SortFunc(list, func(a, b models.ChatSession) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
}
