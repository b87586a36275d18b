package script

import (
	"github.com/risor-io/risor/object"
	"github.com/sirupsen/logrus"

	"github.com/jward/joanna/internal/extract"
)

// entityObject converts an entity to the map a filter script sees. Absent
// values are nil, matching the JSON output.
func entityObject(e *extract.Entity) object.Object {
	m := map[string]object.Object{
		"kind":        object.NewString(string(e.Kind)),
		"name":        optionalString(e.Name),
		"binding":     optionalString(string(e.Binding)),
		"doc":         optionalString(e.Doc),
		"super_class": optionalString(e.SuperClass),
		"line":        object.NewInt(int64(e.Range.Start.Line)),
		"column":      object.NewInt(int64(e.Range.Start.Column)),
		"end_line":    object.NewInt(int64(e.Range.End.Line)),
		"end_column":  object.NewInt(int64(e.Range.End.Column)),
		"params":      stringList(e.Params),
		"static":      object.NewInt(int64(len(e.StaticMembers))),
		"instance":    object.NewInt(int64(len(e.InstanceMembers))),
	}
	return object.NewMap(m)
}

func optionalString(s string) object.Object {
	if s == "" {
		return object.Nil
	}
	return object.NewString(s)
}

func stringList(items []string) object.Object {
	out := make([]object.Object, len(items))
	for i, s := range items {
		out[i] = object.NewString(s)
	}
	return object.NewList(out)
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	entry *logrus.Entry
}

func (l *logObject) Info(msg string) {
	l.entry.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.entry.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.entry.Error(msg)
}
