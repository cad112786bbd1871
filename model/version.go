package model

// Version identifies this module's release, attached to every exported
// signal via [Scope].
const Version = "0.1.0"
