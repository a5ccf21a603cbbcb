package contract

// Decryptor: 以密钥还原明文（纯函数）。
// Decrypt(Encrypt(P, K), K) == P 对任意 P 与 len(K) >= 1 成立。
type Decryptor interface {
	Decrypt(t Text, k Key, size int) (Text, error)
	Encrypt(t Text, k Key, size int) (Text, error)
	// DecryptRaw 解密原始文本：保留字母表外符号与大小写，仅在字母表符号上推进密钥。
	DecryptRaw(a Alphabet, raw string, k Key) (string, error)
}
