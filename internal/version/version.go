package version

// Version is the shellback release version. Bumped as part of the release
// process.
const Version = "0.1.0"
