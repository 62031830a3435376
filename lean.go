package gopaginate

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// LeanIDField is the field stamped on lean records.
const LeanIDField = "id"

// stampIDs returns copies of records with LeanIDField set to the string form
// of the idField value. The input records are left as they are.
func stampIDs(records []Record, idField string) []Record {
	return lo.Map(records, func(record Record, _ int) Record {
		return lo.Assign(record, Record{LeanIDField: idString(record[idField])})
	})
}

// idString formats an identifier. Values cast cannot convert, such as
// composite keys, are printed with fmt. A missing identifier is "".
func idString(id any) string {
	s, err := cast.ToStringE(id)
	if err != nil {
		return fmt.Sprint(id)
	}

	return s
}
