package shared

const Version = "0.2.0"
