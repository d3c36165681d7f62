package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeEmbedding 小端 float32 序列，不带长度前缀
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// decodeEmbedding encodeEmbedding 的逆过程
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// magnitude 向量模长
func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine 余弦相似度；维度不一致或零向量返回 ok=false
func cosine(a []float32, aMag float64, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 || aMag == 0 {
		return 0, false
	}
	bMag := magnitude(b)
	if bMag == 0 {
		return 0, false
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (aMag * bMag)
	if math.IsNaN(s) {
		return 0, false
	}
	return s, true
}
