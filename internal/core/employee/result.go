package employee

// FailureKind は失敗の分類です。
type FailureKind string

const (
	FailureRemote    FailureKind = "remote"
	FailureTransport FailureKind = "transport"
	FailureAuth      FailureKind = "auth"
	FailureNotFound  FailureKind = "not_found"
	FailureInternal  FailureKind = "internal"
)

// MessageRemoteUnavailable は通信障害時に呼び出し元へ返す文言です。
const MessageRemoteUnavailable = "Remote API unavailable"

// Result は成功時のデータまたは失敗時のメッセージのどちらかを保持します。
// Cause はログ用の詳細で、Error と異なり外部へは返しません。
type Result struct {
	OK    bool
	Data  map[string]any
	Error string
	Kind  FailureKind
	Cause error
}

// Success は成功の Result を返します。data が nil の場合は空の map になります。
func Success(data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{OK: true, Data: data}
}

// Failure は失敗の Result を返します。
func Failure(kind FailureKind, message string) Result {
	if kind == "" {
		kind = FailureRemote
	}
	return Result{Error: message, Kind: kind}
}

// TransportFailure は通信障害の Result を返します。接続先などの詳細は Cause にのみ保持します。
func TransportFailure(cause error) Result {
	return Result{Error: MessageRemoteUnavailable, Kind: FailureTransport, Cause: cause}
}

// Map は success/data/error 形式の map を返します。
func (r Result) Map() map[string]any {
	out := map[string]any{"success": r.OK}
	if r.OK {
		out["data"] = r.Data
	} else {
		out["error"] = r.Error
	}
	return out
}
