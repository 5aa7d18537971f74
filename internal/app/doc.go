// Package app wires the engine together: configuration, logging, the
// matrix loader, the capability registry, and the run lifecycle from
// expansion through coordination to the final report and exit status.
package app
