package engine

import "fmt"

// Code is the result of a transfer. The numeric values match those of the
// libcurl easy interface so they stay meaningful in logs and errors.
type Code int

const (
	CodeOK                     Code = 0
	CodeUnsupportedProtocol    Code = 1
	CodeFailedInit             Code = 2
	CodeURLMalformat           Code = 3
	CodeCouldntResolveProxy    Code = 5
	CodeCouldntResolveHost     Code = 6
	CodeCouldntConnect         Code = 7
	CodeWeirdServerReply       Code = 8
	CodeHTTPReturnedError      Code = 22
	CodeWriteError             Code = 23
	CodeOperationTimedOut      Code = 28
	CodeSSLConnectError        Code = 35
	CodeAbortedByCallback      Code = 42
	CodeBadFunctionArgument    Code = 43
	CodeGotNothing             Code = 52
	CodeSendError              Code = 55
	CodeRecvError              Code = 56
	CodePeerFailedVerification Code = 60
)

var messages = map[Code]string{
	CodeOK:                     "No error",
	CodeUnsupportedProtocol:    "Unsupported protocol",
	CodeFailedInit:             "Failed initialization",
	CodeURLMalformat:           "URL using bad/illegal format or missing URL",
	CodeCouldntResolveProxy:    "Couldn't resolve proxy name",
	CodeCouldntResolveHost:     "Couldn't resolve host name",
	CodeCouldntConnect:         "Couldn't connect to server",
	CodeWeirdServerReply:       "Weird server reply",
	CodeHTTPReturnedError:      "HTTP response code said error",
	CodeWriteError:             "Failed writing received data to disk/application",
	CodeOperationTimedOut:      "Timeout was reached",
	CodeSSLConnectError:        "SSL connect error",
	CodeAbortedByCallback:      "Operation was aborted by an application callback",
	CodeBadFunctionArgument:    "A libcurl function was given a bad argument",
	CodeGotNothing:             "Server returned nothing (no headers, no data)",
	CodeSendError:              "Failed sending data to the peer",
	CodeRecvError:              "Failure when receiving data from the peer",
	CodePeerFailedVerification: "SSL peer certificate or SSH remote key was not OK",
}

// Message returns the human-readable description of c.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}

	return "Unknown error"
}

func (c Code) String() string {
	return fmt.Sprintf("%d (%s)", int(c), c.Message())
}
