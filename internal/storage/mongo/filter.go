package mongo

import (
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func byID(ownerID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "ownerId", Value: ownerID}}
}

// referencing matches the owner's entries that use accountID in any role.
func referencing(ownerID, accountID string) bson.D {
	return bson.D{
		{Key: "ownerId", Value: ownerID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "account", Value: accountID}},
			bson.D{{Key: "fromAccount", Value: accountID}},
			bson.D{{Key: "toAccount", Value: accountID}},
		}},
	}
}

func entryFilter(ownerID string, q models.EntryQuery) bson.D {
	filter := bson.D{{Key: "ownerId", Value: ownerID}}
	if q.AccountID != "" {
		filter = referencing(ownerID, q.AccountID)
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	return filter
}

func entrySort(key models.SortKey) bson.D {
	switch key {
	case models.SortDueAsc:
		return bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortDueDesc:
		return bson.D{{Key: "dueDate", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}
