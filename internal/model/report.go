package model

import (
	"bytes"
	"fmt"
	"time"
)

// ReportStatus は被害報告の対応状況を表す。
// 遷移は active → resolved の一方向のみ。
type ReportStatus string

const (
	// ReportStatusActive は未対応の報告。作成時のデフォルト。
	ReportStatusActive ReportStatus = "active"
	// ReportStatusResolved は対応済みの報告。
	ReportStatusResolved ReportStatus = "resolved"
)

// Valid はステータスが定義済みの値かどうかを返す。
func (s ReportStatus) Valid() bool {
	return s == ReportStatusActive || s == ReportStatusResolved
}

// Report は浸水被害の報告を表す。
type Report struct {
	ID            string        `json:"id"`
	District      string        `json:"district"`
	Location      string        `json:"location"`
	Type          string        `json:"type"`
	Criticality   string        `json:"criticality"`
	Description   string        `json:"description"`
	Latitude      *float64      `json:"latitude"`
	Longitude     *float64      `json:"longitude"`
	ReporterName  string        `json:"reporterName"`
	ContactNumber string        `json:"contactNumber"`
	Status        ReportStatus  `json:"status"`
	Timestamp     LocalDateTime `json:"timestamp"`
}

// LocalDateTimeLayout はタイムゾーンオフセットを持たないローカル日時の書式。
// フロントエンドの new Date() がローカル時刻として解釈する。
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime はオフセットなしのローカル日時としてJSONに直列化される時刻。
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime は秒未満を切り捨てたLocalDateTimeを生成する。
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t.Local().Truncate(time.Second)}
}

// String はLocalDateTimeLayout形式の文字列を返す。
func (t LocalDateTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(LocalDateTimeLayout)
}

// MarshalJSON はローカル時刻をオフセットなしで書き出す。ゼロ値はnullになる。
func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON はオフセットなしの日時をローカル時刻として読み込む。
// 秒未満の端数付きの値も受け付ける。
func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid local date-time: %s", data)
	}
	s := string(data[1 : len(data)-1])
	for _, layout := range []string{LocalDateTimeLayout, "2006-01-02T15:04:05.999999999"} {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid local date-time: %q", s)
}
