package navigation

// Prompt is what the confirmation dialog shows for the pending target.
type Prompt struct {
	Target      Page   `json:"target"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ConfirmText string `json:"confirm_text"`
	CancelText  string `json:"cancel_text"`
	Step        int    `json:"step"`
	Steps       int    `json:"steps"`
}

func promptFor(from, target Page, step, steps int) Prompt {
	p := Prompt{Target: target, Step: step, Steps: steps}

	switch {
	case from == Checkout && step < steps, from == Checkout && steps == 1:
		p.Title = "Kembali ke Detail Event?"
		p.Message = "Data formulir yang sudah Anda isi akan hilang. Apakah Anda yakin ingin melanjutkan?"
		p.ConfirmText = "Ya, Lanjutkan"
		p.CancelText = "Tidak, Tetap di Sini"
	case from == Checkout:
		p.Title = "Konfirmasi Kembali Sekali Lagi"
		p.Message = "Ini akan MENGHAPUS SEMUA data yang telah Anda masukkan dan Anda akan kembali ke halaman sebelumnya. Apakah Anda benar-benar yakin?"
		p.ConfirmText = "Ya, Hapus & Kembali"
		p.CancelText = "Tidak, Batalkan"
	case target == Checkout:
		p.Title = "Batalkan Pembayaran?"
		p.Message = "Apakah Anda yakin ingin membatalkan pembayaran dan kembali ke halaman data pemesan? Pesanan Anda belum selesai dan data formulir mungkin perlu diisi ulang."
		p.ConfirmText = "Ya, Lanjutkan"
		p.CancelText = "Batal"
	default:
		p.Title = "Konfirmasi Navigasi"
		p.Message = "Apakah Anda yakin ingin kembali? Pilihan tiket Anda saat ini akan direset."
		p.ConfirmText = "Ya, Lanjutkan"
		p.CancelText = "Batal"
	}
	return p
}
