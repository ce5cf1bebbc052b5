package model

// Version is the release tag checked against GitHub by --update.
const Version = "v0.4.1"
