// Package session implements session identity for live compilation.
//
// Every request sent to the compiler supervisor carries a session id, and
// every event the supervisor sends back echoes it. Ordering between a
// request and its response is not guaranteed relative to other requests, so
// the id is the only reliable way to tell a current response from a stale
// one.
//
// IDENTITY:
//
// An ID is "{namespace}_{counter}". The namespace is derived once per open
// project from the main file name plus a random suffix, so compiled
// artifacts stay in one temp folder even if the main file is renamed while
// the project is open. The counter is monotonic for the lifetime of the
// Generator and is never reset, so ids are never reused.
//
// Each ID also carries a Purpose (play, export, stats). The Registry keeps
// one current ID per purpose and answers "is this event still relevant?".
package session
