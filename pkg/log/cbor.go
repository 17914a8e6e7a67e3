package log

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// A trace file is a plain sequence of CBOR maps, one per Event, with no
// framing between them. Writers emit definite-length items in core
// deterministic order, so identical scans produce identical bytes apart
// from timestamps and scan IDs.
var traceEncMode = mustEncMode(cbor.EncOptions{
	Sort:          cbor.SortCoreDeterministic,
	IndefLength:   cbor.IndefLengthForbidden,
	NilContainers: cbor.NilContainerAsNull,
	Time:          cbor.TimeRFC3339Nano,
	TimeTag:       cbor.EncTagNone,
})

// Trace files may come from stdin or another host, so the decoder accepts
// only what a writer in this package produces. Unknown keys are still
// skipped so older readers can open newer traces.
var traceDecMode = mustDecMode(cbor.DecOptions{
	DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	IndefLength:      cbor.IndefLengthForbidden,
	UTF8:             cbor.UTF8RejectInvalid,
	MaxNestedLevels:  8,
	MaxArrayElements: 64,
	MaxMapPairs:      64,
})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic("log: trace encoder options: " + err.Error())
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic("log: trace decoder options: " + err.Error())
	}
	return dm
}

func newTraceEncoder(w io.Writer) *cbor.Encoder {
	return traceEncMode.NewEncoder(w)
}

func newTraceDecoder(r io.Reader) *cbor.Decoder {
	return traceDecMode.NewDecoder(r)
}
