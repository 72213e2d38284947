package recognition

// SingleVINPrompt captures the instructions sent with a single framed capture
// (camera or image upload). Keep updates centralized here so it is easy to
// tweak without hunting through call sites.
const SingleVINPrompt = `You read vehicle identification numbers (VINs) from photographs.

The image shows exactly one vehicle's VIN plate, windshield etching, or door
sticker. A VIN is 17 characters drawn from digits and uppercase letters,
never using I, O, or Q.

Rules:
- Respond with the VIN only, as a single line of text.
- Do not add punctuation, labels, or commentary.
- If glare or focus makes a character ambiguous, give your best reading.`

// MultiVINPrompt captures the instructions sent with a batch of video frames.
// The model may see the same vehicle across several frames and multiple
// vehicles in one pass.
const MultiVINPrompt = `You read vehicle identification numbers (VINs) from a series of video frames.

The frames come from one walk-through of a vehicle lot. The same VIN may
appear in several frames and several different VINs may appear in total.

Rules:
- Respond ONLY with a JSON array of strings, one element per distinct VIN.
- A VIN is 17 characters of digits and uppercase letters, never I, O, or Q.
- Include partial readings only when at least 10 characters are legible.
- Respond with [] when no VIN is legible in any frame.`
