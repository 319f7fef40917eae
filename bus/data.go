// Package bus implements the single global typed event bus of §6: a
// multi-producer, single-consumer queue of Events carrying Cmd
// invocations, key/mouse/resize input, and lifecycle signals, plus the
// Data/Params value types Cmd arguments are built from.
//
// Grounded on rclone's fs/rc.Params convention (confirmed via
// fs/rc/params_test.go: a string-keyed map of interface{} with typed
// Get/GetString/GetInt64 accessors and ErrParamNotFound/ErrParamInvalid
// errors) generalized from rc's untyped map[string]interface{} to a
// closed Data sum type matching §3's {Nil|Boolean|Integer|Number|String|
// Url|Any} variants.
package bus

import (
	"encoding/json"
	"fmt"

	"github.com/dirsail/dirsail/vfsurl"
)

// DataKind tags the Data union.
type DataKind uint8

const (
	DataNil DataKind = iota
	DataBool
	DataInt
	DataNum
	DataStr
	DataUrl
	DataAny
)

// Data is a Cmd argument value (§3, §6): a closed sum type rendered as a
// single flat struct, the same idiom cha.FilesOp and task.Out use for a
// small fixed set of variants.
type Data struct {
	Kind DataKind

	Bool bool
	Int  int64
	Num  float64
	Str  string
	Url  vfsurl.Url
	Any  any
}

func Nil() Data               { return Data{Kind: DataNil} }
func Bool(b bool) Data        { return Data{Kind: DataBool, Bool: b} }
func Int(i int64) Data        { return Data{Kind: DataInt, Int: i} }
func Num(f float64) Data      { return Data{Kind: DataNum, Num: f} }
func Str(s string) Data       { return Data{Kind: DataStr, Str: s} }
func UrlData(u vfsurl.Url) Data { return Data{Kind: DataUrl, Url: u} }
func AnyData(v any) Data      { return Data{Kind: DataAny, Any: v} }

// wireData is the JSON rendering of Data: cross-process transport is JSON
// "with Any stripped" (§6), since a boxed Go value has no portable wire
// form.
type wireData struct {
	Kind DataKind `json:"kind"`
	Bool bool     `json:"bool,omitempty"`
	Int  int64    `json:"int,omitempty"`
	Num  float64  `json:"num,omitempty"`
	Str  string   `json:"str,omitempty"`
	Url  string   `json:"url,omitempty"`
}

// MarshalJSON implements the "Any stripped" wire rule: a DataAny value
// marshals as DataNil.
func (d Data) MarshalJSON() ([]byte, error) {
	w := wireData{Kind: d.Kind, Bool: d.Bool, Int: d.Int, Num: d.Num, Str: d.Str}
	if d.Kind == DataUrl {
		w.Url = d.Url.Display()
	}
	if d.Kind == DataAny {
		w.Kind = DataNil
	}
	return json.Marshal(w)
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var w wireData
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*d = Data{Kind: w.Kind, Bool: w.Bool, Int: w.Int, Num: w.Num, Str: w.Str}
	if w.Kind == DataUrl {
		u, err := vfsurl.Parse(w.Url)
		if err != nil {
			return fmt.Errorf("bus: decode url arg: %w", err)
		}
		d.Url = u
	}
	return nil
}
