package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// SaveModel はモデルをgob形式でファイルに保存する
//
// 使用例:
//
//	ridge := linear.NewRidge()
//	// ... モデルの学習 ...
//	err := model.SaveModel(ridge, "ridge.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからモデルを読み込む。model はポインタでなければならない
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// EncodeSnapshot はスナップショット構造体をgobバイト列に変換する。
// 各モデルの MarshalBinary から呼ばれる
func EncodeSnapshot(snapshot interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(snapshot, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot は EncodeSnapshot の逆変換を行う
func DecodeSnapshot(data []byte, snapshot interface{}) error {
	return LoadModelFromReader(snapshot, bytes.NewReader(data))
}
