package common

import "fmt"

type HintKind string

const (
	HintKindBlock       HintKind = "block"
	HintKindTransaction HintKind = "transaction"
)

type HintSource string

const (
	HintSourcePush HintSource = "push"
	HintSourcePoll HintSource = "poll"
)

// Hint tells the pipeline that something new may exist on the node. It is
// never trusted as data; only the hash is used to fetch the real payload.
type Hint struct {
	Kind      HintKind
	Hash      string
	Number    *uint64
	Timestamp int64
	Source    HintSource
}

func (h Hint) String() string {
	if h.Number != nil {
		return fmt.Sprintf("%s %s #%d (%s)", h.Kind, h.Hash, *h.Number, h.Source)
	}
	return fmt.Sprintf("%s %s (%s)", h.Kind, h.Hash, h.Source)
}
