package bot

// User-facing texts. Markdown is supported by the gateway.

const startMessage = `*✨Welcome to Whisper AI bot!*

Transcribe audio and video seamlessly with this bot.

1️⃣ *Click “New audio”*

2️⃣ *Upload ANY audio or video to the bot*

🤖 “In process. Your file is being processed. Please wait a moment.”

3️⃣ *Whisper will make a perfect transcription and the bullet point summary.*

4️⃣ *After you receive a transcription, you can ask any questions regarding uploaded file in the chat.*

⚠️ Note, that the bot does not accept audio/video file over 1 hour.

⁉️ If you have any questions, contact support by clicking “Support”

*Click “New audio”*👇`

const supportMessage = `💥If you are facing difficulties or you have a question, contact support here: +1 (669) 210-4822 💥`

const statsMessage = `📈 *Statistics:*

👥 *New users (today):* %d
👥 *Registered users:* %d
📄 *Uploaded audios:* %d
💬 *GPT requests:* %d`

const withoutTranscriptionMessage = `ℹ️ Before asking questions, please transcribe the audio.`

const userNotFoundMessage = `User %d not found`

const setAdminMessage = `User %d set as admin`

const unsetAdminMessage = `User %d removed as admin`

const notChangeAdminMessage = `That %d can't be changed`

const adminCommandHelpMessage = `*Admin command help:*

admin set <number> - *set user as admin*
admin unset <number> - *unset user as admin*

*number format:* 1234567890`

const inProcessMessage = `*In process...*

Your file is being processed. Please wait a moment. 🕒`

const alreadyInProcessMessage = `⚠️ You are already processing audio. Please wait until the previous audio is processed.`

const errorInProcessMessage = `⚠️ An error occurred while processing your audio. Please try again later.`

const transcriptionCaption = `*Transcription:*`

const summaryMessage = `*Summary:*
%s

*Now you can ask questions about transcribing.*
`

const responseGenerationMessage = `*Response generation...*

Your question is being processed. Please wait a moment. 🕒`

const errorResponseGenerationMessage = `⚠️ An error occurred while generating a response. Please try again later.`

const cancelMessage = `*Action canceled*`

const newAudioMessage = `⚡️Please send a file (audio, video, or voice message)⚡️`
