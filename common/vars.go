package common

// Version is set at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"

// PackageName is the metrics namespace of the service binaries.
const PackageName = "registrar-controller"
