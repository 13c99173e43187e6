// Package identity derives a stable key for a queue item. The services
// recycle numeric queue IDs after removal, so correlation across runs uses
// a content fingerprint instead: origin, normalized release title, and
// download protocol.
package identity
