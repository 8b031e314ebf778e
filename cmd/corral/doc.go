// Command corral is the operator CLI for the consolidation engine: importing
// records, running detection passes, and inspecting groups, review pairs, and
// pass history.
package main
