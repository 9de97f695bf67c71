package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

const aes256KeySizeBytes = 32

// AEADHMACCodec 使用 AES-256-GCM 加密，并对密文与关联数据再做一层 HMAC-SHA256 签名。
//
// 报文格式：nonce || ciphertext || mac
//   - nonce     ：随机数，长度等于 AEAD.NonceSize()
//   - ciphertext：AES-GCM 加密后的密文（包含 GCM tag）
//   - mac       ：HMAC-SHA256(nonce || ciphertext || aad)
type AEADHMACCodec struct {
	aead    cipher.AEAD
	hmacKey []byte
}

// 确保 AEADHMACCodec 满足 Encryptor 接口。
var _ Encryptor = (*AEADHMACCodec)(nil)

// NewAESGCMHMACCodec 使用 AES-256-GCM + HMAC-SHA256 创建编码器。
//
// encKey 长度必须为 32 字节（AES-256），macKey 为任意长度的非空 HMAC 密钥。
func NewAESGCMHMACCodec(encKey, macKey []byte) (*AEADHMACCodec, error) {
	if len(encKey) != aes256KeySizeBytes {
		return nil, merr.WrapErrParameterInvalid(aes256KeySizeBytes, len(encKey), "encKey length for AES-256-GCM")
	}
	if len(macKey) == 0 {
		return nil, merr.WrapErrParameterMissing("macKey")
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, merr.WrapErrServiceInternal(err.Error(), "new aes cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, merr.WrapErrServiceInternal(err.Error(), "new gcm")
	}
	return &AEADHMACCodec{
		aead:    aead,
		hmacKey: append([]byte(nil), macKey...),
	}, nil
}

// NewAESGCMHMACCodecFromHex 与 NewAESGCMHMACCodec 相同，密钥以十六进制字符串给出，便于写在配置文件中。
func NewAESGCMHMACCodecFromHex(encKey, macKey string) (*AEADHMACCodec, error) {
	enc, err := hex.DecodeString(encKey)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("encKey is not hex: %v", err)
	}
	mac, err := hex.DecodeString(macKey)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("macKey is not hex: %v", err)
	}
	return NewAESGCMHMACCodec(enc, mac)
}

func (c *AEADHMACCodec) mac(nonce, ciphertext, aad []byte) []byte {
	m := hmac.New(sha256.New, c.hmacKey)
	_, _ = m.Write(nonce)
	_, _ = m.Write(ciphertext)
	_, _ = m.Write(aad)
	return m.Sum(nil)
}

// Encrypt 对明文进行加密并计算签名。
func (c *AEADHMACCodec) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, merr.WrapErrServiceInternal(err.Error(), "read nonce")
	}

	ciphertext := c.aead.Seal(nil, nonce, plaintext, aad)
	mac := c.mac(nonce, ciphertext, aad)

	packet := make([]byte, 0, len(nonce)+len(ciphertext)+len(mac))
	packet = append(packet, nonce...)
	packet = append(packet, ciphertext...)
	packet = append(packet, mac...)
	return packet, nil
}

// Decrypt 验证签名并解密报文，aad 必须与加密时一致。
func (c *AEADHMACCodec) Decrypt(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+sha256.Size {
		return nil, merr.WrapErrSnapshotCorrupted("encrypted packet too short")
	}

	nonce := packet[:nonceSize]
	macOffset := len(packet) - sha256.Size
	ciphertext := packet[nonceSize:macOffset]

	if !hmac.Equal(c.mac(nonce, ciphertext, aad), packet[macOffset:]) {
		return nil, merr.WrapErrSnapshotCorrupted("invalid mac")
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, merr.WrapErrSnapshotCorrupted(err.Error(), "open aead")
	}
	return plaintext, nil
}
