// Package onboarding sequences the registration questions a new member answers
// before entering the village.
//
// The package is split in two layers:
//   - Flow is a value. Its transition methods (Select, Next, Previous) take the
//     current state and return the next one without touching anything outside
//     the value, so front-ends and tests can drive it directly.
//   - Controller owns one Flow for a session and performs the side effects of
//     completing it: a single write of the answer set through a
//     PreferenceWriter, a Journal entry, and a hand-off of the Destination to a
//     Router.
//
// Guard failures (moving forward without an answer, moving back from the first
// question, completing before the last question) are ignored rather than
// reported. Only collaborator I/O can fail.
package onboarding
