package auth

const (
	MsgRegistered = "successful"
)
