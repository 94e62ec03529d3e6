package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func bulkErr(codes ...int) mongo.BulkWriteException {
	var bwe mongo.BulkWriteException
	for i, c := range codes {
		bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{
			WriteError: mongo.WriteError{Index: i, Code: c, Message: "write failed"},
		})
	}
	return bwe
}

func TestOnlyDuplicates(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"all duplicates", bulkErr(11000, 11000), true},
		{"wrapped duplicates", fmt.Errorf("insert: %w", bulkErr(11000)), true},
		{"mixed codes", bulkErr(11000, 121), false},
		{"no write errors", mongo.BulkWriteException{}, false},
		{"write concern", mongo.BulkWriteException{
			WriteConcernError: &mongo.WriteConcernError{Code: 64},
			WriteErrors:       bulkErr(11000).WriteErrors,
		}, false},
		{"other error", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := onlyDuplicates(tc.err); got != tc.want {
				t.Errorf("onlyDuplicates() = %v, want %v", got, tc.want)
			}
		})
	}
}
