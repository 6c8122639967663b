package collection

import "log/slog"

// DefaultNamespace prefixes every key when Env.Namespace is empty.
const DefaultNamespace = "mentordesk"

// Env carries what every collection in one process shares.
type Env struct {
	Namespace string
	Repo      Repository
	Logger    *slog.Logger
	Observer  Observer
	Notifier  Notifier
}

// Key qualifies name, e.g. "reviews.reviews", with the namespace.
func (e Env) Key(name string) string {
	ns := e.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + "." + name
}

// Bind builds a Collection stored under e.Key(name). opts supplies the record
// specific parts; shared parts come from e.
func Bind[T any](e Env, name string, opts Options[T]) *Collection[T] {
	opts.Key = e.Key(name)
	opts.Repo = e.Repo
	opts.Logger = e.Logger
	opts.Observer = e.Observer
	opts.Notifier = e.Notifier
	return New(opts)
}
