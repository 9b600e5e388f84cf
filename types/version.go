package types

// Version is the canonical project version.
// All components (CLI, wire contract, storage layout) share this version
// per the lockstep versioning policy.
//
// This version is authoritative. Doc comments elsewhere reference this
// constant rather than restating it.
const Version = "0.1.0"

// ContractVersion is the semantic version of the event envelope contract,
// carried on every EventEnvelope.
const ContractVersion = "0.1.0"
