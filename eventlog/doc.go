// Package eventlog defines the structured event sink used by the consistency packages.
//
// Every event kind is bound once to a stable numeric id, a level and a message template
// with named parameters ("Message id \"{MessageId}\" created."). Templates are parsed at
// definition time and reused for every call; callers check Sink.Enabled before rendering.
// Correlation scopes are carried in a context.Context and nest.
package eventlog
