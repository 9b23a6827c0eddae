package tick

// Version is the release of the tick module, reported by the binaries and adapters.
var Version = "0.1.0"
