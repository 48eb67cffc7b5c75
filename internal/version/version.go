// Package version provides centralized version information for Tally monorepo projects.
// This package supports independent versioning for the tallyd daemon and tallyctl CLI
// as separate projects within the monorepo, allowing them to evolve independently
// while maintaining consistency within each project's components.
// All versions follow semantic versioning (semver) conventions.

package version

// TallydVersion holds the current tallyd daemon version.
// Format: major.minor.patch[-prerelease][+build]
const TallydVersion = "0.1.0-dev"

// TallyctlVersion holds the current tallyctl CLI version.
// This is used by the CLI binary and allows independent evolution
// of the management tool separate from the daemon infrastructure.
// Format: major.minor.patch[-prerelease][+build]
const TallyctlVersion = "0.1.0-dev"
