package ir

// ToolVersion is the bslq release version reported by --version.
const ToolVersion = "0.1.0"
