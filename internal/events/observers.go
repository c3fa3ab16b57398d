package events

import "log"

// LoggingObserver logs every event it receives.
type LoggingObserver struct {
	debug bool
}

// NewLoggingObserver creates a logging observer. With debug set, payloads
// are logged too.
func NewLoggingObserver(debug bool) *LoggingObserver {
	return &LoggingObserver{debug: debug}
}

// OnEvent logs the event.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.debug {
		log.Printf("[Events] %s: %+v", event.Type, event.Data)
		return nil
	}
	log.Printf("[Events] %s", event.Type)
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return "LoggingObserver"
}

// ShouldHandle accepts every event type.
func (o *LoggingObserver) ShouldHandle(string) bool {
	return true
}

// FuncObserver adapts a function to Observer for a fixed set of types.
type FuncObserver struct {
	Name  string
	Types []string
	Fn    func(Event) error
}

// OnEvent calls Fn.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.Fn(event)
}

// GetName returns Name.
func (o *FuncObserver) GetName() string {
	return o.Name
}

// ShouldHandle reports whether eventType is in Types. Empty Types accepts all.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, t := range o.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

var (
	_ Observer = (*LoggingObserver)(nil)
	_ Observer = (*FuncObserver)(nil)
)
