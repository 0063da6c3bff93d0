package types

// LabelTable maps an appliance channel number to the appliance's name. It is
// built once per ingestion and never modified afterwards.
type LabelTable map[int]string

// Resolve returns the appliance name for the channel number.
func (l LabelTable) Resolve(channel int) (string, bool) {
	name, ok := l[channel]
	return name, ok
}
